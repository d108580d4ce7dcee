// Package local implements a username and password authentication strategy
// backed by a user store and salted PBKDF2 password hashes.
//
// Flow:
//   - Credentials are extracted from the request body, falling back to the
//     query string. Field names accept a bracket syntax ("user[name]") to
//     reach nested form values.
//   - The user record is looked up in a UserStore. The default store is a
//     bun backed SQL table whose columns follow the configured field names;
//     the table is created on first use.
//   - The submitted password is hashed with the record's salt and compared
//     with the stored hash.
//
// Outcomes:
//   - Every Authenticate call reports exactly one of Success, Fail or Error
//     to its Host. Fail covers invalid credentials and is meant to be shown
//     to the user; Error covers internal faults (store or hashing) and is
//     meant to be logged and surfaced generically.
//
// Hosts register strategies in a Registry and drive them per request; the
// localware package provides a gofiber handler that does exactly that.
package local
