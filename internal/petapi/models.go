package petapi

import (
	"net/url"
	"strconv"
)

// Foto is a photo attached to a pet or an owner.
type Foto struct {
	ID          int64  `json:"id"`
	Nome        string `json:"nome,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Pet is an animal record.
type Pet struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Raca  string `json:"raca,omitempty"`
	Idade int    `json:"idade,omitempty"`
	Foto  *Foto  `json:"foto,omitempty"`
}

// PetInput is the body of pet create and update calls.
type PetInput struct {
	Nome  string `json:"nome"`
	Raca  string `json:"raca,omitempty"`
	Idade int    `json:"idade,omitempty"`
}

// Tutor is an owner record.
type Tutor struct {
	ID       int64  `json:"id"`
	Nome     string `json:"nome"`
	Email    string `json:"email,omitempty"`
	Telefone string `json:"telefone,omitempty"`
	Endereco string `json:"endereco,omitempty"`
	CPF      string `json:"cpf,omitempty"`
	Foto     *Foto  `json:"foto,omitempty"`
	Pets     []Pet  `json:"pets,omitempty"`
}

// TutorInput is the body of owner create and update calls.
type TutorInput struct {
	Nome     string `json:"nome"`
	Email    string `json:"email,omitempty"`
	Telefone string `json:"telefone,omitempty"`
	Endereco string `json:"endereco,omitempty"`
	CPF      string `json:"cpf,omitempty"`
}

// Page is the envelope of paginated list responses.
type Page[T any] struct {
	Page      int   `json:"page"`
	Size      int   `json:"size"`
	Total     int64 `json:"total"`
	PageCount int   `json:"pageCount"`
	Content   []T   `json:"content"`
}

// ListOptions filters and pages list calls. Zero values are omitted.
type ListOptions struct {
	Nome string
	Raca string
	Page int
	Size int
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Nome != "" {
		q.Set("nome", o.Nome)
	}
	if o.Raca != "" {
		q.Set("raca", o.Raca)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Size > 0 {
		q.Set("size", strconv.Itoa(o.Size))
	}
	return q
}
