// Package safealloc simulates operating system resource management: a fixed
// quantum resource pool, a single CPU process scheduler with a five state
// lifecycle, and the Banker's safety algorithm.
//
// End-users typically interact with the simulator via the Service façade
// exposed by the root package:
//
//	srv, _ := safealloc.New(safealloc.WithVariant(scheduler.VariantB))
//	defer srv.Close()
//	rt := srv.Runtime()
//	record, _ := rt.Open(ctx, 4)
//	result, _ := rt.CheckSafety(ctx, nil)
//
// Two scheduling variants are available. Variant A leaves a process whose
// dispatch cannot be granted at the front of its queue; variant B enforces
// the CPU ceiling at admission and blocks such a process until the running
// one closes.
package safealloc
