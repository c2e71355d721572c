package book

// PartUpdate replaces the text and/or image of one page. Empty values mean
// "leave as is".
type PartUpdate struct {
	PartID   int    `json:"part_id"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

// ApplyPartUpdates returns a copy of units with updates applied. Updates
// for unknown part ids are ignored; order and part ids never change.
// Applying the same updates twice gives the same result.
func ApplyPartUpdates(units []PageUnit, updates []PartUpdate) []PageUnit {
	out := make([]PageUnit, len(units))
	copy(out, units)

	index := make(map[int]int, len(out))
	for i, u := range out {
		index[u.PartID] = i
	}
	for _, upd := range updates {
		i, ok := index[upd.PartID]
		if !ok {
			continue
		}
		if upd.Text != "" {
			out[i].Text = upd.Text
		}
		if upd.ImageURL != "" {
			out[i].ImageURL = upd.ImageURL
		}
	}
	return out
}
