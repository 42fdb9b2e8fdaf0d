package docs

import _ "embed"

//go:embed pipeline.md
var PipelineMD string
