//go:build linux

// Package epoll provides a Linux epoll-backed actorcore.ReadinessProvider,
// grounded on eventloop's FastPoller: a fixed, direct-indexed file
// descriptor table rather than a map, so registering and deregistering
// an fd never allocates once the table itself has been sized.
package epoll

import (
	"errors"
	"sync"

	"github.com/orbital-robotics/actorcore"
	"golang.org/x/sys/unix"
)

// MaxFDs bounds the direct-indexed descriptor table, matching the
// specification's "every pool is fixed-capacity, sized at startup"
// discipline (§5) for the one external resource (file descriptors)
// this adapter owns.
const MaxFDs = 4096

type fdInfo struct {
	owner     actorcore.ActorID
	readyData uint64
	active    bool
}

// Provider is a Linux epoll ReadinessProvider. Only SourceIO handles
// are meaningful here: SourceTimer registrations are accepted as a
// no-op, since software timer deadlines are tracked by the runtime's
// own heap rather than by this adapter.
type Provider struct {
	epfd int

	mu  sync.RWMutex
	fds [MaxFDs]fdInfo

	eventBuf [256]unix.EpollEvent
}

// New creates and initializes an epoll instance.
func New() (*Provider, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Provider{epfd: fd}, nil
}

// Close releases the underlying epoll file descriptor.
func (p *Provider) Close() error {
	return unix.Close(p.epfd)
}

// Register implements actorcore.ReadinessProvider.
func (p *Provider) Register(kind actorcore.SourceKind, handle uintptr, owner actorcore.ActorID, readyData uint64) error {
	if kind != actorcore.SourceIO {
		return nil
	}
	fd := int(handle)
	if fd < 0 || fd >= MaxFDs {
		return errors.New("epoll: fd out of range")
	}

	p.mu.Lock()
	if p.fds[fd].active {
		p.mu.Unlock()
		return errors.New("epoll: fd already registered")
	}
	p.fds[fd] = fdInfo{owner: owner, readyData: readyData, active: true}
	p.mu.Unlock()

	ev := &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLOUT, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		p.mu.Lock()
		p.fds[fd] = fdInfo{}
		p.mu.Unlock()
		return err
	}
	return nil
}

// Deregister implements actorcore.ReadinessProvider.
func (p *Provider) Deregister(kind actorcore.SourceKind, handle uintptr) error {
	if kind != actorcore.SourceIO {
		return nil
	}
	fd := int(handle)
	if fd < 0 || fd >= MaxFDs {
		return errors.New("epoll: fd out of range")
	}

	p.mu.Lock()
	if !p.fds[fd].active {
		p.mu.Unlock()
		return nil
	}
	p.fds[fd] = fdInfo{}
	p.mu.Unlock()

	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Wait implements actorcore.ReadinessProvider.
func (p *Provider) Wait(out []actorcore.ReadyEvent, timeoutMs int) ([]actorcore.ReadyEvent, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}

	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Fd)
		if fd < 0 || fd >= MaxFDs {
			continue
		}
		p.mu.RLock()
		info := p.fds[fd]
		p.mu.RUnlock()
		if !info.active {
			continue
		}
		out = append(out, actorcore.ReadyEvent{
			Kind:      actorcore.SourceIO,
			Owner:     info.owner,
			ReadyData: info.readyData,
			Count:     1,
		})
	}
	return out, nil
}
