// Package config carries the settings shared by the CLI and the pipeline.
package config

type Config struct {
	InputPath    string
	OutputPath   string
	Lang         string
	DetectTables bool
	DPI          int
	Workers      int
	Engine       string
	FontSize     int
	// TablesOut, when set, is the path of the YAML layout file describing
	// the detected tables.
	TablesOut string
	// MaskedOut, when set, is the path where the page image with detected
	// tables painted over is saved. Multi-page inputs get a page suffix.
	MaskedOut string
	// Stamp, when set, is embedded as a QR code in the output SVG.
	Stamp   string
	Verbose bool
}
