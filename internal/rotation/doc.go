// Package rotation maps the four supported rotation amounts to the filter
// graph expression that performs them and to the geometry change they cause.
//
// Rotation is a small value type; derivations are table lookups so adding a
// variant means extending one row rather than every switch.
package rotation
