/*
Package navigator implements the Guided Decision-Tree Navigator.

A Navigator owns one session's traversal over a ports.TreeProvider as an explicit
state machine:

	Idle  --Start-->  Loading --> Ready | Terminal | Error
	Ready --Navigate--> Loading --> Ready | Terminal | Error
	any but Loading --Reset--> Loading --> Ready | Terminal | Error

Failures of Start and Navigate schedule a one-shot automatic Reset after the
recovery delay. Any admitted mutating call cancels that pending recovery.

Health is probed on a fixed interval independently of navigation; consecutive
non-OK probes raise a degraded signal through the lifecycle hooks.
*/
package navigator
