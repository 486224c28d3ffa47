// Package schema converts model objects to and from versioned interchange
// documents.
//
// A Document is an ordered JSON object. ToDocument and FromDocument work on
// any model.Object; Marshal and Unmarshal add the JSON text layer. Every
// object carries a "properties" block holding one entry per extension in
// insertion order. Extensions that are not registered in this process and
// document fields the model does not know are kept verbatim, so reading
// and writing a document never loses data.
//
// Decode failures are *DecodeError values that name the object type and
// the path of the offending field, e.g. rooms[0].faces[2].face_type. They
// match ErrSchema with errors.Is.
package schema
