// Package observability — отправка ошибок в Sentry.
package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/Spok95/classroom-league/internal/ctxutil"
	"github.com/getsentry/sentry-go"
)

// InitSentry включает отправку; пустой dsn — no-op. Возвращает flush для defer.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          release,
		AttachStacktrace: true,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CaptureContext — то же, но с чатом, операцией и исполнителем из ctx.
func CaptureContext(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(Tags(ctx))
		if actor, ok := ctxutil.Actor(ctx); ok {
			scope.SetUser(sentry.User{ID: actor.String()})
		}
	})
	hub.CaptureException(err)
}

// Tags — метки события из контекста запроса.
func Tags(ctx context.Context) map[string]string {
	tags := map[string]string{}
	if chatID, ok := ctxutil.ChatID(ctx); ok {
		tags["chat_id"] = strconv.FormatInt(chatID, 10)
	}
	if op, ok := ctxutil.Op(ctx); ok {
		tags["op"] = op
	}
	return tags
}
