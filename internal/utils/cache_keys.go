package utils

func RunningTimerCacheKey(userID string) string {
	return "timer:running:v1:user=" + userID
}
