// Package file provides the TOML configuration store.
//
// Settings live in config.toml under the ragcore config directory,
// grouped into one table per section:
//
//	[embedding]
//	provider = "openai"
//	max_batch_size = 64
//
// and are addressed with dot keys such as "embedding.max_batch_size".
package file
