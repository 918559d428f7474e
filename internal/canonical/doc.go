// Package canonical maps source-native records onto the canonical entity set.
// There is exactly one mapping function per source schema: FromHouse,
// FromSenate and FromBioguide.
package canonical
