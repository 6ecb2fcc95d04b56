// Package build runs the dist pipeline: discover files under the source
// directory, copy them below the destination base, and rewrite CSS and HTML
// references to point at the base URL.
//
// The stages are CloneAssets (non-CSS/HTML files), Rewrite(css) and
// Rewrite(html). Run executes all three in that order and records a Report;
// Clean removes the destination directory.
package build
