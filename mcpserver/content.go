package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/use-agent/fetchmcp/models"
)

// resourceContent wraps a saved Resource as an embedded "resource"
// content item (saveAndReturn).
func resourceContent(r *models.Resource) mcp.Content {
	return mcp.NewEmbeddedResource(mcp.TextResourceContents{
		URI:      r.URI,
		MIMEType: r.MimeType,
		Text:     r.Text,
	})
}

// resourceLinkContent wraps a saved Resource as a "resource_link"
// content item (saveOnly): an address, no body.
func resourceLinkContent(r *models.Resource) mcp.Content {
	return mcp.NewResourceLink(r.URI, r.Name, r.Description, r.MimeType)
}

func errorResult(err *models.AcquireError) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}
