// Package listing defines the value types shared by the marketplace write
// path: listing identifiers, account identities, the immutable listing
// record, its lifecycle status, and the role a reviewer plays in a sale.
//
// These types carry no behavior beyond labelling. Transitions live in the
// market package; encodings live in codec.
package listing
