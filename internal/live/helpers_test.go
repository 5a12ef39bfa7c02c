package live

import "github.com/julianstephens/streaks/internal/storage"

func storageChange(collection, key string) storage.Change {
	return storage.Change{Collection: storage.Collection(collection), Key: key}
}

func changes(collection, key string) []storage.Change {
	return []storage.Change{storageChange(collection, key)}
}
