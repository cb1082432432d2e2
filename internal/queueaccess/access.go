package queueaccess

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"autopost/internal/config"
	"autopost/internal/daemon"
	"autopost/internal/ipc"
	"autopost/internal/queue"
)

// Access provides queue operations regardless of IPC or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]ipc.QueueItem, error)
	Describe(ctx context.Context, id int64) (*ipc.QueueItem, error)
	Add(ctx context.Context, req daemon.AddRequest) (ipc.QueueItem, error)
	Remove(ctx context.Context, ids []int64) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	ClearPending(ctx context.Context) (int64, error)
	Clear(ctx context.Context) (int64, error)
	Health(ctx context.Context) (ipc.DatabaseHealthResponse, error)
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access. Intake needs
// cfg to resolve the videos directory.
func NewStoreAccess(cfg *config.Config, store *queue.Store, logger *slog.Logger) Access {
	return &storeAccess{cfg: cfg, store: store, logger: logger}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]ipc.QueueItem, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *ipcAccess) Describe(_ context.Context, id int64) (*ipc.QueueItem, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, nil
		}
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return &resp.Item, nil
}

func (a *ipcAccess) Add(_ context.Context, req daemon.AddRequest) (ipc.QueueItem, error) {
	resp, err := a.client.QueueAdd(ipc.QueueAddRequest{
		Path:        req.Path,
		Caption:     req.Caption,
		Copy:        req.Copy,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		return ipc.QueueItem{}, err
	}
	return resp.Item, nil
}

func (a *ipcAccess) Remove(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRemove(ids)
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) Retry(_ context.Context, ids []int64) (int64, error) {
	resp, err := a.client.QueueRetry(ids)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) ClearFailed(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearFailed()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) ClearPending(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClearPending()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) Clear(_ context.Context) (int64, error) {
	resp, err := a.client.QueueClear()
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func (a *ipcAccess) Health(_ context.Context) (ipc.DatabaseHealthResponse, error) {
	resp, err := a.client.DatabaseHealth()
	if err != nil {
		if resp != nil {
			return *resp, err
		}
		return ipc.DatabaseHealthResponse{}, err
	}
	return *resp, nil
}

type storeAccess struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out, nil
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]ipc.QueueItem, error) {
	filters := make([]queue.Status, 0, len(statuses))
	for _, raw := range statuses {
		status, err := queue.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		filters = append(filters, status)
	}
	items, err := a.store.List(ctx, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]ipc.QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, ipc.FromQueueItem(item))
	}
	return out, nil
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*ipc.QueueItem, error) {
	item, err := a.store.GetByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	converted := ipc.FromQueueItem(item)
	return &converted, nil
}

func (a *storeAccess) Add(ctx context.Context, req daemon.AddRequest) (ipc.QueueItem, error) {
	item, err := daemon.AddFile(ctx, a.cfg, a.store, a.logger, req)
	if err != nil {
		return ipc.QueueItem{}, err
	}
	return ipc.FromQueueItem(item), nil
}

func (a *storeAccess) Remove(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		if err := a.store.Remove(ctx, id); err != nil {
			if errors.Is(err, queue.ErrNotFound) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func (a *storeAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

func (a *storeAccess) ClearPending(ctx context.Context) (int64, error) {
	return a.store.ClearPending(ctx)
}

func (a *storeAccess) Clear(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *storeAccess) Health(ctx context.Context) (ipc.DatabaseHealthResponse, error) {
	health, err := a.store.CheckHealth(ctx)
	return ipc.FromDatabaseHealth(health), err
}
