// Cache of account display names, keyed by the platform's numeric person ID.
//
// Names are only ever used to render replies; tallies are keyed by ID. Includes an interface, in-process and redis implementations, and Lookup, which resolves through the cache and degrades to the raw ID.
package namecache
