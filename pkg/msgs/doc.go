// Package msgs defines the link messages shared by the tools.
//
// Each message travels over the Binary, Text and Proto codecs.
package msgs
