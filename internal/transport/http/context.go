package http

import "context"

func contextWithStation(ctx context.Context, station string) context.Context {
	return context.WithValue(ctx, stationContextKey{}, station)
}

func stationFromContext(ctx context.Context) string {
	station, _ := ctx.Value(stationContextKey{}).(string)
	return station
}
