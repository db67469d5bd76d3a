package cache

import "fmt"

func OperationKey(name string) string {
	return fmt.Sprintf("operation:%s", name)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
