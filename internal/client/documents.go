package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/mkraev/docquery/internal/errs"
	"github.com/mkraev/docquery/internal/model"
)

// ListDocuments returns the caller's documents in server order.
func (c *Client) ListDocuments(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	err := c.doJSON(ctx, "GET", "/documents/", nil, &docs, callOpts{})
	return docs, err
}

// UploadDocument sends a multipart upload (fields: file, title) and returns
// the created record; the server assigns the identifier and timestamp.
func (c *Client) UploadDocument(ctx context.Context, title, filename string, file io.Reader) (model.Document, error) {
	var doc model.Document

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return doc, fmt.Errorf("%w: create multipart file: %v", errs.ErrUnknown, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return doc, fmt.Errorf("%w: read upload data: %v", errs.ErrUnknown, err)
	}
	if err := writer.WriteField("title", title); err != nil {
		return doc, fmt.Errorf("%w: write title field: %v", errs.ErrUnknown, err)
	}
	if err := writer.Close(); err != nil {
		return doc, fmt.Errorf("%w: close multipart writer: %v", errs.ErrUnknown, err)
	}

	err = c.do(ctx, "POST", "/documents/", body, writer.FormDataContentType(), &doc, callOpts{upload: true})
	return doc, err
}

// DeleteDocument removes a document by id.
func (c *Client) DeleteDocument(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "DELETE", fmt.Sprintf("/documents/%d/", id), nil, nil, callOpts{})
}

type updateRequest struct {
	Title string `json:"title"`
}

// UpdateDocument replaces document metadata and returns the updated record.
func (c *Client) UpdateDocument(ctx context.Context, id int64, title string) (model.Document, error) {
	var doc model.Document
	err := c.doJSON(ctx, "PUT", fmt.Sprintf("/documents/%d/", id), updateRequest{Title: title}, &doc, callOpts{})
	return doc, err
}
