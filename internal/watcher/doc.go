// Package watcher extracts UserAssist data from hive files as they are
// dropped into a collection directory.
//
// Triage collectors typically copy each user's NTUSER.DAT into a shared
// directory. The Watcher observes that directory with fsnotify, waits until a
// file has stopped changing, then decodes it and stores the run in the case
// database. Files that are not registry hives are ignored.
//
// Example usage:
//
//	st, err := store.New("~/.uassist/uassist.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close()
//
//	w, err := watcher.New(st, userassist.NewDecoder(table), "/cases/incoming")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := w.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
package watcher
