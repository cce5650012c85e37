// Package schema is the registry of contact shapes, their fields, and the
// native columns and collections those fields live in.
//
// The registry is a pure lookup table. It carries no state beyond the
// immutable tables built at construction and is safe for concurrent reads.
//
// # Collections
//
// Collections are opaque content URIs modelled on the Android contacts
// provider:
//
//	content://com.android.contacts/contacts        aggregated contacts
//	content://com.android.contacts/raw_contacts    per-account raw contacts
//	content://com.android.contacts/data            generic structured data
//	content://com.android.contacts/data/phones     phone rows
//	content://com.android.contacts/data/emails     email rows
//	content://com.android.contacts/data/postals    postal address rows
//
// Several shapes share the generic data collection. Their rows are told apart
// by the discriminator column (mimetype) holding a content item type such as
// "vnd.android.cursor.item/organization".
//
// # Field classes
//
// Each Contact field falls in one of three classes:
//
//  1. A scalar column of the primary collection. Whether that is the
//     aggregated or the raw collection depends on the Mode passed to the lookup.
//  2. A column of the data collection plus a discriminator (name parts,
//     nickname).
//  3. A synthetic collection field with no column (Phones, Emails, ...). The
//     field still resolves to a collection so it can be flattened.
package schema
