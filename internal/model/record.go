package model

// Record is the flattened, persisted form of an AugmentedConversation.
type Record struct {
	Conversation     []Turn           `json:"conversation"`
	Domain           string           `json:"domain"`
	Action           string           `json:"action"`
	Description      string           `json:"description"`
	LabelScore       float64          `json:"label_score"`
	AugmentationType AugmentationType `json:"augmentation_type"`
}

// Flatten projects an augmented conversation into a dataset record.
func Flatten(a AugmentedConversation) Record {
	turns := make([]Turn, len(a.Conversation.Turns))
	copy(turns, a.Conversation.Turns)
	return Record{
		Conversation:     turns,
		Domain:           a.Conversation.Domain,
		Action:           a.Conversation.Action,
		Description:      a.Conversation.Description,
		LabelScore:       a.LabelScore(),
		AugmentationType: a.Type,
	}
}
