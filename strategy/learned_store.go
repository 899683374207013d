package strategy

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/fetchmcp/models"
)

// consecutiveFailureDemoteThreshold is the number of consecutive
// non-transient failures that demotes a strategy below other candidates
// for a domain (§4.3).
const consecutiveFailureDemoteThreshold = 3

// strategyRecord is one strategy's standing for one domain.
type strategyRecord struct {
	Name                string
	SuccessCount        int
	ConsecutiveFailures int
	LastFailureReason   string
	RetryAfterMs        int64
}

// domainPreference is a domain's ordered strategy list plus bookkeeping.
type domainPreference struct {
	Order       []string // strategy names, head = most preferred
	Records     map[string]*strategyRecord
	LastUpdated time.Time
}

// LearnedStore is the persisted per-domain strategy preference store:
// Markdown table format, one section per domain, concurrent-write-safe
// (write-to-temp then rename). Grounded on the teacher's
// engine.DomainMemory (in-memory sync.Map + TTL), extended with on-disk
// persistence and win/loss counters since the spec requires the store to
// survive process restarts and record per-strategy failure history.
type LearnedStore struct {
	path string
	mu   sync.Mutex
	data map[string]*domainPreference // domain -> preference, in-memory mirror
}

// NewLearnedStore loads path if it exists, starting from an empty store on
// any read or parse error (logged, not fatal — §4.3's "MUST NOT crash
// startup" requirement).
func NewLearnedStore(path string) *LearnedStore {
	s := &LearnedStore{path: path, data: make(map[string]*domainPreference)}
	if path == "" {
		return s
	}
	if err := s.load(); err != nil {
		slog.Warn("learned_store: starting from empty store", "path", path, "error", err)
		s.data = make(map[string]*domainPreference)
	}
	return s
}

// Order returns the domain's preferred strategy order, or nil if the
// domain has no recorded preference yet.
func (s *LearnedStore) Order(domain string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data[domain]
	if !ok {
		return nil
	}
	out := make([]string, len(p.Order))
	copy(out, p.Order)
	return out
}

// RecordSuccess moves strategyName to the head of domain's order if it
// isn't already among the top two, increments its success count, and
// resets its consecutive-failure counter.
func (s *LearnedStore) RecordSuccess(domain, strategyName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.domain(domain)
	rec := s.record(p, strategyName)
	rec.SuccessCount++
	rec.ConsecutiveFailures = 0
	rec.LastFailureReason = ""

	if idx := indexOf(p.Order, strategyName); idx > 1 {
		p.Order = append(p.Order[:idx], p.Order[idx+1:]...)
		p.Order = append([]string{strategyName}, p.Order...)
	}
	p.LastUpdated = time.Now()
	s.persist()
}

// RecordFailure records reason against strategyName for domain. Non-
// transient failures (§7) accumulate toward the demotion threshold;
// rate-limit failures never demote but record a retry delay hint.
func (s *LearnedStore) RecordFailure(domain, strategyName string, kind models.ErrorKind, reason string, retryAfterMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.domain(domain)
	rec := s.record(p, strategyName)
	rec.LastFailureReason = reason

	if kind == models.ErrRateLimit {
		rec.RetryAfterMs = retryAfterMs
		p.LastUpdated = time.Now()
		s.persist()
		return
	}

	if nonTransient(kind) {
		rec.ConsecutiveFailures++
		if rec.ConsecutiveFailures >= consecutiveFailureDemoteThreshold {
			demote(p, strategyName)
		}
	}
	p.LastUpdated = time.Now()
	s.persist()
}

func nonTransient(kind models.ErrorKind) bool {
	switch kind {
	case models.ErrAuth, models.ErrPayment, models.ErrValidation, models.ErrContent, models.ErrProtocol:
		return true
	default:
		return false
	}
}

func (s *LearnedStore) domain(domain string) *domainPreference {
	p, ok := s.data[domain]
	if !ok {
		p = &domainPreference{Records: make(map[string]*strategyRecord)}
		s.data[domain] = p
	}
	return p
}

func (s *LearnedStore) record(p *domainPreference, name string) *strategyRecord {
	rec, ok := p.Records[name]
	if !ok {
		rec = &strategyRecord{Name: name}
		p.Records[name] = rec
		p.Order = append(p.Order, name)
	}
	return rec
}

func demote(p *domainPreference, name string) {
	idx := indexOf(p.Order, name)
	if idx < 0 || idx == len(p.Order)-1 {
		return
	}
	p.Order = append(p.Order[:idx], p.Order[idx+1:]...)
	p.Order = append(p.Order, name)
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}

// persist serializes the store to its Markdown file via temp-then-rename.
// Caller must hold s.mu. Write failures are logged, not fatal: learning is
// best-effort and must never take down a scrape.
func (s *LearnedStore) persist() {
	if s.path == "" {
		return
	}
	var b strings.Builder
	b.WriteString("# learned strategy preferences\n\n")
	b.WriteString("_Generated file. Edits may be overwritten._\n\n")

	domains := make([]string, 0, len(s.data))
	for d := range s.data {
		domains = append(domains, d)
	}
	sortStrings(domains)

	for _, d := range domains {
		p := s.data[d]
		fmt.Fprintf(&b, "## %s\n\n", d)
		fmt.Fprintf(&b, "LastUpdated: %s\n\n", p.LastUpdated.UTC().Format(time.RFC3339))
		b.WriteString("| Strategy | SuccessCount | ConsecutiveFailures | LastFailureReason | RetryAfterMs |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, name := range p.Order {
			rec := p.Records[name]
			fmt.Fprintf(&b, "| %s | %d | %d | %s | %d |\n",
				rec.Name, rec.SuccessCount, rec.ConsecutiveFailures, escapeCell(rec.LastFailureReason), rec.RetryAfterMs)
		}
		b.WriteString("\n")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("learned_store: mkdir", "error", err)
		return
	}
	tmp, err := os.CreateTemp(dir, ".tmp-learned-*")
	if err != nil {
		slog.Warn("learned_store: create temp file", "error", err)
		return
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		slog.Warn("learned_store: write temp file", "error", err)
		return
	}
	tmp.Close()
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		slog.Warn("learned_store: rename temp file", "error", err)
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

// load parses the Markdown table file at s.path into s.data.
func (s *LearnedStore) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	data := make(map[string]*domainPreference)
	var current *domainPreference
	var currentDomain string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "## "):
			currentDomain = strings.TrimPrefix(line, "## ")
			current = &domainPreference{Records: make(map[string]*strategyRecord)}
			data[currentDomain] = current
		case strings.HasPrefix(line, "LastUpdated:"):
			if current == nil {
				continue
			}
			ts := strings.TrimSpace(strings.TrimPrefix(line, "LastUpdated:"))
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				current.LastUpdated = t
			}
		case strings.HasPrefix(line, "| ") && current != nil && !strings.Contains(line, "Strategy") && !strings.HasPrefix(line, "|---"):
			cols := splitRow(line)
			if len(cols) != 5 {
				continue
			}
			successCount, _ := strconv.Atoi(cols[1])
			consecutive, _ := strconv.Atoi(cols[2])
			retryAfter, _ := strconv.ParseInt(cols[4], 10, 64)
			rec := &strategyRecord{
				Name:                cols[0],
				SuccessCount:        successCount,
				ConsecutiveFailures: consecutive,
				LastFailureReason:   unescapeCell(cols[3]),
				RetryAfterMs:        retryAfter,
			}
			current.Records[rec.Name] = rec
			current.Order = append(current.Order, rec.Name)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func splitRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func unescapeCell(s string) string {
	return strings.ReplaceAll(s, "\\|", "|")
}
