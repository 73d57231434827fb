// Package model defines domain types shared by the data layer.
package model

// Props is the open-ended catalog record attached to a product. The schema is
// owned by the backend; only presence is interpreted here.
type Props map[string]string

// Product is the client-side view of one product, keyed by EAN barcode.
//
// Vote is tri-state: true means the current user upvoted, false downvoted,
// nil no vote. UpVotes and DownVotes are aggregate counts across all users.
type Product struct {
	EAN       string `json:"ean"`
	Product   Props  `json:"product"`
	UpVotes   int64  `json:"upVotes"`
	DownVotes int64  `json:"downVotes"`
	Vote      *bool  `json:"vote"`
}

// VoteRequest is the body of a vote mutation.
type VoteRequest struct {
	Vote bool `json:"vote"`
}

// BadgeSet is the persisted envelope of earned badge identifiers.
type BadgeSet struct {
	Badges []string `json:"badges"`
}

// Bool returns a pointer to b, for filling the tri-state Vote field.
func Bool(b bool) *bool { return &b }
