package client

import (
	"context"
)

type askRequest struct {
	DocumentID int64  `json:"document_id"`
	Question   string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// Ask submits a natural-language question against one document.
func (c *Client) Ask(ctx context.Context, documentID int64, question string) (string, error) {
	var resp askResponse
	err := c.doJSON(ctx, "POST", "/ai/ask/", askRequest{DocumentID: documentID, Question: question}, &resp, callOpts{})
	return resp.Answer, err
}
