// Package web embeds the HTML templates and static assets served by the
// web application.
package web

import "embed"

// TemplatesFS holds the page, layout and partial templates.
//
//go:embed all:templates
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and other static assets.
//
//go:embed all:static
var StaticFS embed.FS
