// Package project provides georeferencing project file handling.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"georef/internal/config"
	"georef/internal/georef"
	"georef/pkg/geometry"
)

// FormatVersion is the newest project file version this package writes.
const FormatVersion = 1

// File represents a georeferencing project file (.georef.json).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Raster the reference source coordinates were picked on (relative to project)
	ImagePath string `json:"image,omitempty"`

	// Fit settings
	Method  string  `json:"method,omitempty"`
	Order   int     `json:"order,omitempty"`
	Scaling float64 `json:"scaling,omitempty"`

	References []Reference `json:"references"`
}

// Reference is one stored source/target pair.
type Reference struct {
	Source geometry.Point2D `json:"source"`
	Target geometry.Point2D `json:"target"`
	Name   string           `json:"name,omitempty"`
}

// New creates a new project file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  FormatVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		Method:   georef.Automatic.String(),
		Order:    3,
		Scaling:  1,
	}
}

// Load loads a project from a file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("load project %s: %w", path, err)
	}
	if proj.Version > FormatVersion {
		return nil, fmt.Errorf("load project %s: version %d is newer than supported version %d",
			path, proj.Version, FormatVersion)
	}
	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()
	if p.Version == 0 {
		p.Version = FormatVersion
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("save project: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save project: %w", err)
	}
	return nil
}

// AddReference appends a named pair.
func (p *File) AddReference(name string, source, target geometry.Point2D) {
	p.References = append(p.References, Reference{Source: source, Target: target, Name: name})
	p.Modified = time.Now()
}

// SetImage sets the image path (relative to project).
func (p *File) SetImage(projectPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.ImagePath = imagePath
	} else {
		p.ImagePath = rel
	}
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the image.
func (p *File) GetImagePath(projectPath string) string {
	if p.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ImagePath)
}

// Resolve settles the fit settings the tools use: values stored in the
// project, then defaults for the ones it leaves unset, then flags given on
// the command line. The result is stored back and validated.
func (p *File) Resolve(defaults config.TransformConfig, flags *config.TransformFlags) error {
	t := defaults
	if p.Method != "" {
		t.Method = p.Method
	}
	if p.Order != 0 {
		t.Order = p.Order
	}
	if p.Scaling != 0 {
		t.Scaling = p.Scaling
	}
	if flags != nil {
		flags.Override(&t)
	}

	if err := t.Validate(); err != nil {
		return fmt.Errorf("project %q: %w", p.Name, err)
	}
	p.Method, p.Order, p.Scaling = t.Method, t.Order, t.Scaling
	return nil
}

// Apply replaces the engine's references and scaling with the project's and
// fits the project's method. An empty method is automatic and a zero scaling
// is 1.
func (p *File) Apply(e *georef.Engine) error {
	method := georef.Automatic
	if p.Method != "" {
		m, err := georef.ParseMethod(p.Method)
		if err != nil {
			return fmt.Errorf("project %q: %w", p.Name, err)
		}
		method = m
	}

	e.Reset()
	scaling := p.Scaling
	if scaling == 0 {
		scaling = 1
	}
	if err := e.SetScaling(scaling); err != nil {
		return fmt.Errorf("project %q: %w", p.Name, err)
	}
	for _, r := range p.References {
		e.AddReference(r.Source, r.Target)
	}

	if err := e.Evaluate(method, p.Order); err != nil {
		return fmt.Errorf("project %q: %w", p.Name, err)
	}
	return nil
}
