package store

import (
	"errors"
	"regexp"

	"github.com/chazu/spatial/pkg/canvas"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Sentinel errors returned by Memory.
var (
	ErrNotFound  = errors.New("not found")
	ErrLastSpace = errors.New("at least one space must remain")
)

// Limits on user-supplied space fields.
const (
	MaxSpaceNameLength        = 80
	MaxSpaceDescriptionLength = 500
	MaxSpaceMembers           = 50
)

// Space is a named canvas holding its own nodes.
type Space struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	IsPublic    bool     `json:"isPublic" yaml:"is_public"`
	Members     []string `json:"members" yaml:"members"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	PictureURL  string   `json:"pictureUrl,omitempty" yaml:"picture_url,omitempty"`
	Background  string   `json:"backgroundColor,omitempty" yaml:"background_color,omitempty"`
}

// SpaceInput is the user-facing form for creating or editing a space.
type SpaceInput struct {
	Name        string   `json:"name"`
	IsPublic    bool     `json:"isPublic"`
	Members     []string `json:"members"`
	Description string   `json:"description"`
	PictureURL  string   `json:"pictureUrl"`
	Background  string   `json:"backgroundColor"`
}

var (
	hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	member   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	httpURL  = regexp.MustCompile(`^https?://\S+$`)
)

// Validate checks the form fields.
func (in SpaceInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required,
			validation.Length(1, MaxSpaceNameLength),
		),
		validation.Field(&in.Description, validation.Length(0, MaxSpaceDescriptionLength)),
		validation.Field(&in.Members,
			validation.Length(0, MaxSpaceMembers),
			validation.Each(validation.Required, validation.Match(member).Error("must be an email address")),
		),
		validation.Field(&in.PictureURL, validation.Match(httpURL).Error("must be an http(s) URL")),
		validation.Field(&in.Background, validation.Match(hexColor)),
	)
}

// background returns the colour for a new space built from in.
func (in SpaceInput) background() string {
	if in.Background != "" {
		return in.Background
	}
	return canvas.Palette[1].Value
}
