package cli

// GetIndexConfigForTest exposes the Firestore index definition
var GetIndexConfigForTest = getIndexConfig
