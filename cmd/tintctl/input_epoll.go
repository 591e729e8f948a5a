//go:build linux

package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// startInputReaders reads every device from a single epoll goroutine.
func startInputReaders(files []*os.File, events chan<- inputEvent, readErr chan<- error) {
	if len(files) == 1 {
		go readInputEvents(files[0], events, readErr)
		return
	}
	go readInputEventsEpoll(files, events, readErr)
}

// readInputEventsEpoll reads from multiple input devices using epoll.
// One goroutine serves all devices; the kernel wakes it only when a device
// has data.
func readInputEventsEpoll(files []*os.File, events chan<- inputEvent, readErr chan<- error) {
	if len(files) == 0 {
		readErr <- fmt.Errorf("no input devices provided")
		return
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		readErr <- fmt.Errorf("epoll_create1: %w", err)
		return
	}
	defer unix.Close(epfd)

	fdToFile := make(map[int]*os.File)

	for _, f := range files {
		fd := int(f.Fd())
		fdToFile[fd] = f

		event := unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(fd),
		}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			readErr <- fmt.Errorf("epoll_ctl_add %s: %w", f.Name(), err)
			return
		}
	}

	const maxEvents = 32
	epollEvents := make([]unix.EpollEvent, maxEvents)
	buf := make([]byte, binary.Size(inputEvent{}))
	reader := bytes.NewReader(buf)

	for {
		n, err := unix.EpollWait(epfd, epollEvents, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			readErr <- fmt.Errorf("epoll_wait: %w", err)
			return
		}

		for i := 0; i < n; i++ {
			fd := int(epollEvents[i].Fd)
			f := fdToFile[fd]

			// Any device error is fatal for the reader.
			if epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				readErr <- fmt.Errorf("device error/hangup: %s", f.Name())
				return
			}

			if _, err := f.Read(buf); err != nil {
				readErr <- fmt.Errorf("read from %s: %w", f.Name(), err)
				return
			}

			reader.Reset(buf)
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				continue
			}

			events <- ev
		}
	}
}
