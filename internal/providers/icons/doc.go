// Package icons discovers, downloads and renders web app icons.
//
// Every web app gets a ladder of PNG files, one per size in Sizes, named
// <icon_id>-<N>x<N>.png inside the icon cache directory.
//
// Pipeline:
//   - Fetch the start page (10s total timeout, stable user agent)
//   - Discover <link rel=icon>, then <link rel=apple-touch-icon>, then /favicon.ico
//   - Download each candidate under a 5 MiB cap and decode it; ICO containers
//     yield their widest frame, other bytes are sniffed with mimetype
//   - Resize with Lanczos to every ladder size and write atomically
//
// When no candidate works a glyph icon is synthesized from the host name.
// The color is seeded from SHA-256(host) so a site always gets the same icon.
//
// Example Usage:
//
//	fetcher := icons.NewFetcher(icons.DefaultOptions(), logger)
//	result, err := fetcher.FetchAndCache(ctx, startURL, def.IconID, paths.IconsDir())
package icons
