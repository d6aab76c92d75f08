// Package form models HTML forms as fillable, submittable entities.
//
// A Form owns a FieldSet of Controls parsed from a form element. Mutators
// (FillIn, Check, Choose, Select, Upload) resolve controls by locator and
// update their state; Payload serializes the final state into query, data,
// and file buckets ready for an HTTP transport.
package form
