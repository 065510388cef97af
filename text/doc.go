// Package text turns a string into the alpha mask that stencils the
// animated color field.
//
// The pipeline has three stages:
//
//   - Registry: font sources keyed by family and weight. The Go fonts from
//     golang.org/x/image/font/gofont are always available.
//   - Measure: HarfBuzz shaping (go-text/typesetting) and sfnt metrics give
//     the logical box the text occupies.
//   - Rasterize: glyph outlines are filled with golang.org/x/image/vector
//     into a padded, DPR-scaled paint.Mask.
//
// # Example usage
//
//	reg := text.NewRegistry()
//	b := text.NewBuilder(reg)
//	mask, rebuilt, err := b.Build("Reimagined.", text.DefaultStyle(), 22, 2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Builder skips the rebuild when the measured box moves by less than
// half a logical pixel and nothing else changed.
package text
