// Package forms validates site form submissions and sends them to the content API.
package forms

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/techstackph/techstack/internal/types"
)

const (
	MsgInvalid = "Please fill out all required fields correctly."
	MsgSuccess = "Your submission was successful!"
	MsgFailure = "An unexpected error occurred."
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Definition describes a site form and the API endpoint it is submitted to
type Definition struct {
	Name   string
	Title  string
	Method string // defaults to POST
	Action string // content API path, e.g. /api/contact/
	Fields []types.FormField
}

// DefaultForms are the forms shown on the home page
func DefaultForms() []Definition {
	return []Definition{
		{
			Name:   "contact",
			Title:  "Contact Us",
			Method: http.MethodPost,
			Action: "/api/contact/",
			Fields: []types.FormField{
				{Name: "name", Label: "Name", Type: "text", Required: true},
				{Name: "email", Label: "Email", Type: "email", Required: true},
				{Name: "message", Label: "Message", Type: "textarea", Required: true},
			},
		},
		{
			Name:   "subscribe",
			Title:  "Subscribe to our Newsletter",
			Method: http.MethodPost,
			Action: "/api/subscribe/",
			Fields: []types.FormField{
				{Name: "email", Label: "Email", Type: "email", Required: true},
			},
		},
		{
			Name:   "volunteer",
			Title:  "Volunteer With Us",
			Method: http.MethodPost,
			Action: "/api/volunteer/",
			Fields: []types.FormField{
				{Name: "name", Label: "Name", Type: "text", Required: true},
				{Name: "email", Label: "Email", Type: "email", Required: true},
				{Name: "interest", Label: "Area of Interest", Type: "text", Required: true},
				{Name: "message", Label: "Why do you want to volunteer?", Type: "textarea", Required: false},
			},
		},
	}
}

// Find returns the form with the given name
func Find(defs []Definition, name string) (Definition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Validate checks the required fields of the form and returns the names of the fields that failed.
// Required email fields must look like an email address, other required fields must not be blank.
// Optional fields are not checked.
func (d Definition) Validate(values map[string]string) map[string]bool {
	invalid := make(map[string]bool)
	for _, field := range d.Fields {
		if !field.Required {
			continue
		}
		value := values[field.Name]

		if field.Type == "email" {
			if !emailRegex.MatchString(value) {
				invalid[field.Name] = true
			}
			continue
		}
		if strings.TrimSpace(value) == "" {
			invalid[field.Name] = true
		}
	}
	return invalid
}

// Serialize returns the submitted value of every form field, keyed by field name.
// Values posted for names that are not fields of the form are dropped.
func (d Definition) Serialize(values map[string]string) map[string]string {
	data := make(map[string]string, len(d.Fields))
	for _, field := range d.Fields {
		data[field.Name] = values[field.Name]
	}
	return data
}

// Values flattens posted form values, keeping the first value of each key
func Values(form url.Values) map[string]string {
	values := make(map[string]string, len(form))
	for key := range form {
		values[key] = form.Get(key)
	}
	return values
}

func (d Definition) method() string {
	if d.Method == "" {
		return http.MethodPost
	}
	return strings.ToUpper(d.Method)
}
