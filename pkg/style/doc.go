// Package style models MapLibre-compatible style documents.
//
// A [Document] holds two collections: a mapping from source ID to [Source]
// and an ordered slice of [Layer] descriptors. Each layer references exactly
// one source by ID, and [Document.Validate] enforces that the referenced
// source exists.
//
// # Copies
//
// Documents are shared between a master scene and the two comparison panels,
// so every value that crosses a document boundary must be a structural copy.
// [Document.Clone], [Source.Clone] and [Layer.Clone] return copies that share
// no maps or slices with their origin.
//
// # Serialization
//
// [ReadJSON] and [WriteJSON] use the MapLibre field names ("sources",
// "layers", "source-layer", ...) so that a panel document can be handed to a
// browser map without conversion:
//
//	doc, err := style.ImportJSON("master.json")
//	if err != nil {
//	    return err
//	}
//	panel := doc.Clone()
package style
