package domain

// CanRead reports whether userID may read the document. Readers are the
// owner, any authenticated principal for public documents, and principals
// holding an active binding of any permission level.
func CanRead(doc *Document, binding *Collaborator, userID string) bool {
	if userID == "" {
		return false
	}
	if doc.OwnerID == userID {
		return true
	}
	if binding != nil && binding.Active {
		return true
	}
	return doc.IsPublic
}

// CanWrite reports whether userID may mutate the document body. Writers are
// the owner, holders of an active owner/editor binding, and any authenticated
// principal for public documents. An active binding below editor is a hard
// deny even on public documents: the explicit binding overrides
// public-writability.
func CanWrite(doc *Document, binding *Collaborator, userID string) bool {
	if userID == "" {
		return false
	}
	if doc.OwnerID == userID {
		return true
	}
	if binding != nil && binding.Active {
		return binding.Permission.CanEdit()
	}
	return doc.IsPublic
}
