package engine

import _ "embed"

// DefaultSeed is the layout loaded when no database or seed file exists.
//
//go:embed seed.zy
var DefaultSeed string
