package badger

import (
	"encoding/binary"

	"github.com/poiesic/cookbook/core"
)

// Key prefixes for different data types
const (
	recipePrefix      = "rcp:"
	recipeURLPrefix   = "rcpurl:"
	recipeOwnerPrefix = "rcpown:"
	recipeGroupPrefix = "rcpgrp:"
	chunkPrefix       = "chunk:"
	checkpointPrefix  = "chkpt:"
)

// makeRecipeKey generates a key for a recipe by ID.
// Format: prefix + id (BigEndian so iteration follows ID order)
func makeRecipeKey(id core.ID) []byte {
	buf := make([]byte, len(recipePrefix)+8)
	offset := copy(buf, recipePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// recipeIDFromKey extracts the ID from a recipe key.
func recipeIDFromKey(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(recipePrefix):]))
}

// makePartialURLKey generates the prefix shared by every position of a URL.
// Format: prefix + url + 0x00
func makePartialURLKey(sourceURL string) []byte {
	buf := make([]byte, 0, len(recipeURLPrefix)+len(sourceURL)+1)
	buf = append(buf, recipeURLPrefix...)
	buf = append(buf, sourceURL...)
	return append(buf, 0)
}

// makeURLKey generates the URL index key for one position on a page.
// Format: prefix + url + 0x00 + position
func makeURLKey(sourceURL string, position int) []byte {
	buf := makePartialURLKey(sourceURL)
	return binary.BigEndian.AppendUint32(buf, uint32(position))
}

// makeMemberKey generates a composite key for the owner or group index.
// Format: prefix + member + recordID
func makeMemberKey(prefix string, member int64, id core.ID) []byte {
	buf := makePartialMemberKey(prefix, member)
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makePartialMemberKey generates a partial key for owner or group queries.
// Format: prefix + member
func makePartialMemberKey(prefix string, member int64) []byte {
	buf := make([]byte, 0, len(prefix)+16)
	buf = append(buf, prefix...)
	return binary.BigEndian.AppendUint64(buf, uint64(member))
}

// memberRecordID extracts the record ID from an owner or group index key.
func memberRecordID(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeChunkKey generates a key for one chunk of a record.
// Format: prefix + recordID + seq
func makeChunkKey(recordID core.ID, seq int) []byte {
	buf := makePartialChunkKey(recordID)
	return binary.BigEndian.AppendUint32(buf, uint32(seq))
}

// makePartialChunkKey generates the prefix shared by every chunk of a record.
func makePartialChunkKey(recordID core.ID) []byte {
	buf := make([]byte, 0, len(chunkPrefix)+12)
	buf = append(buf, chunkPrefix...)
	return binary.BigEndian.AppendUint64(buf, uint64(recordID))
}

// makeCheckpointKey generates a key for a maintenance checkpoint.
func makeCheckpointKey(name string) []byte {
	return []byte(checkpointPrefix + name)
}
