// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for tensorchat.
//
// Transcripts are saved as one JSON file per session. Every message is
// also recorded in a SQLite archive so past conversations can be searched.
//
// # Key Types
//
//   - TranscriptStore: JSON transcripts with list, search and delete
//   - Transcript: Serializable conversation with metadata
//   - Archive: SQLite message log with substring search
//
// # Usage
//
// Save and reload a conversation:
//
//	store, err := storage.NewTranscriptStore(dir)
//	id, err := store.Save(storage.NewTranscript(sessionID, conv.Messages()))
//	t, err := store.Resolve("1")
//
// Search the archive:
//
//	archive, err := storage.OpenArchive(path)
//	defer archive.Close()
//	hits, err := archive.Search(ctx, "invoice", 20)
//
// # Storage Location
//
// Transcripts live in ~/.tensorchat/transcripts/ and the archive in
// ~/.tensorchat/archive.db unless configured otherwise.
package storage
