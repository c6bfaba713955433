// File: core/event/wait.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Blocking protocol: a thread sleeps on a pending event until a callback,
// a push or a driver unblocks it.

package event

// Wait blocks the running thread until ev completes, servicing its
// scheduler meanwhile, then returns ev to the pool.
func (k *Kernel) Wait(ev *Event) {
	defer k.critical()()
	if ev.sched == nil || ev.state == StateFree || ev.state == stateReleased {
		panic(contract("wait on an unbound event", ev))
	}
	for ev.pending {
		ev.thread = k.threads.Current()
		k.execute(ev.sched, true, ev)
		if k.closed() {
			break
		}
	}
	ev.thread = nil
	if ev.state == StateInFlight {
		k.pushFree(ev)
	}
}

// Unblock completes a pending event: the waiter, if any, becomes ready.
// Drivers call it from interrupt handlers instead of queuing the event.
func (k *Kernel) Unblock(ev *Event) {
	defer k.critical()()
	k.unblock(ev)
}

func (k *Kernel) unblock(ev *Event) {
	ev.pending = false
	if t := ev.thread; t != nil {
		k.threads.Ready(t)
	}
}
