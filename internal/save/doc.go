// Package save derives the identity of a game save.
//
// A save's identity is the modification time of its marker file
// ([MarkerFile]), formatted as YYYY-MM-DD_HH-MM-SS in local time. The
// formatted string is both the folder name of a backup and the key of its
// note, so two saves whose markers share a second are the same save as far
// as gfsave is concerned.
//
//	id, modTime, ok, err := save.ReadIdentity(dir)
//	if err != nil {
//	    return err
//	}
//	if !ok {
//	    // not a save directory
//	}
package save
