package shaders

import (
	_ "embed"
)

//go:embed blocks.wgsl
var BlocksWGSL string
