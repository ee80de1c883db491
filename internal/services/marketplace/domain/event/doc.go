// Package event defines the envelope persisted for every accepted marketplace
// mutation and the hashes that chain envelopes into a tamper-evident journal.
//
// Deciders emit envelopes with Type, ActorID, EntityType, EntityID and
// PayloadJSON filled in. Journals assign Seq, Hash, PrevHash and ChainHash.
package event
