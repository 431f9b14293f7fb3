package petapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const petsPath = "/v1/pets"

// ListPets returns one page of pets, optionally filtered by name and breed.
func (c *Client) ListPets(ctx context.Context, opts ListOptions) (*Page[Pet], error) {
	var page Page[Pet]
	if err := c.doJSON(ctx, http.MethodGet, petsPath, opts.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPet fetches a pet by id.
func (c *Client) GetPet(ctx context.Context, id int64) (*Pet, error) {
	var pet Pet
	if err := c.doJSON(ctx, http.MethodGet, petPath(id), nil, nil, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// CreatePet creates a pet.
func (c *Client) CreatePet(ctx context.Context, in PetInput) (*Pet, error) {
	var pet Pet
	if err := c.doJSON(ctx, http.MethodPost, petsPath, nil, in, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// UpdatePet replaces the fields of pet id.
func (c *Client) UpdatePet(ctx context.Context, id int64, in PetInput) (*Pet, error) {
	var pet Pet
	if err := c.doJSON(ctx, http.MethodPut, petPath(id), nil, in, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// DeletePet removes pet id.
func (c *Client) DeletePet(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, petPath(id), nil, nil, nil)
}

// UploadPetPhoto attaches a photo to pet id.
func (c *Client) UploadPetPhoto(ctx context.Context, id int64, file io.Reader, filename, contentType string) (*Foto, error) {
	var foto Foto
	if err := c.doMultipart(ctx, petPath(id)+"/fotos", "foto", file, filename, contentType, &foto); err != nil {
		return nil, err
	}
	return &foto, nil
}

// DeletePetPhoto removes photo fotoID from pet id.
func (c *Client) DeletePetPhoto(ctx context.Context, id, fotoID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/fotos/%d", petPath(id), fotoID), nil, nil, nil)
}

func petPath(id int64) string {
	return fmt.Sprintf("%s/%d", petsPath, id)
}
