// Package language normalizes subtitle language input to ISO 639-1 codes.
//
// Common codes and English names resolve through a local table so the
// wizard can offer a fixed menu. Anything else is parsed as a BCP 47 tag.
package language
