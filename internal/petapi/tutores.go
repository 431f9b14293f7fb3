package petapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const tutoresPath = "/v1/tutores"

// ListTutores returns one page of owners, optionally filtered by name.
func (c *Client) ListTutores(ctx context.Context, opts ListOptions) (*Page[Tutor], error) {
	opts.Raca = ""
	var page Page[Tutor]
	if err := c.doJSON(ctx, http.MethodGet, tutoresPath, opts.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetTutor fetches an owner, including linked pets, by id.
func (c *Client) GetTutor(ctx context.Context, id int64) (*Tutor, error) {
	var tutor Tutor
	if err := c.doJSON(ctx, http.MethodGet, tutorPath(id), nil, nil, &tutor); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// CreateTutor creates an owner.
func (c *Client) CreateTutor(ctx context.Context, in TutorInput) (*Tutor, error) {
	var tutor Tutor
	if err := c.doJSON(ctx, http.MethodPost, tutoresPath, nil, in, &tutor); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// UpdateTutor replaces the fields of owner id.
func (c *Client) UpdateTutor(ctx context.Context, id int64, in TutorInput) (*Tutor, error) {
	var tutor Tutor
	if err := c.doJSON(ctx, http.MethodPut, tutorPath(id), nil, in, &tutor); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// DeleteTutor removes owner id.
func (c *Client) DeleteTutor(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, tutorPath(id), nil, nil, nil)
}

// UploadTutorPhoto attaches a photo to owner id.
func (c *Client) UploadTutorPhoto(ctx context.Context, id int64, file io.Reader, filename, contentType string) (*Foto, error) {
	var foto Foto
	if err := c.doMultipart(ctx, tutorPath(id)+"/fotos", "foto", file, filename, contentType, &foto); err != nil {
		return nil, err
	}
	return &foto, nil
}

// LinkPet associates pet petID with owner id.
func (c *Client) LinkPet(ctx context.Context, id, petID int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/pets/%d", tutorPath(id), petID), nil, nil, nil)
}

// UnlinkPet removes the association between owner id and pet petID.
func (c *Client) UnlinkPet(ctx context.Context, id, petID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/pets/%d", tutorPath(id), petID), nil, nil, nil)
}

func tutorPath(id int64) string {
	return fmt.Sprintf("%s/%d", tutoresPath, id)
}
