// Package openapi derives form definitions from OpenAPI 3 component schemas.
//
// FromDocument loads a document with kin-openapi and converts
// components.schemas[name] into a schema.Form. Scalar properties become
// fields, nested objects become groups. Constraints map as follows:
//
//   - required             -> Field.Required
//   - minLength/maxLength  -> Field.MinLength/MaxLength
//   - minimum/maximum      -> Field.Minimum/Maximum
//   - pattern              -> Field.Pattern
//   - format               -> a validator tag (email, uri, uuid, date, ...)
//   - title                -> Field.Label
//   - default              -> Field.Initial
//
// The x-formstate extension tunes the result per property (strategy,
// sanitize, secret, label) or per object (order).
package openapi
