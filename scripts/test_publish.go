// +build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type SynthesisJobEvent struct {
	JobID     uuid.UUID `json:"job_id"`
	AreaID    string    `json:"area_id"`
	Activity  string    `json:"activity"`
	Hybrid    bool      `json:"hybrid"`
	MaxRoutes int       `json:"max_routes,omitempty"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6380", "Redis address for streams")
	areaID := flag.String("area", "barcelona", "Area ID to synthesize")
	activity := flag.String("activity", "running", "Activity: walking, running or cycling")
	hybrid := flag.Bool("hybrid", false, "Request hybrid routes with facility stops")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Тестовое задание синтеза
	event := SynthesisJobEvent{
		JobID:    uuid.New(),
		AreaID:   *areaID,
		Activity: *activity,
		Hybrid:   *hybrid,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Публикация в стрим
	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:routes:synthesize",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("✅ Job published successfully!\n")
	fmt.Printf("   Stream: stream:routes:synthesize\n")
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Job ID: %s\n", event.JobID)
	fmt.Printf("   Area: %s, activity: %s, hybrid: %t\n", event.AreaID, event.Activity, event.Hybrid)

	// Ожидание результата, по пути показываем прогресс
	fmt.Printf("\n⏳ Waiting for result in stream:routes:done...\n")

	timeout := time.After(5 * time.Minute)
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	lastProgressID := "0"
	lastDoneID := "0"

	for {
		select {
		case <-timeout:
			fmt.Println("❌ Timeout waiting for result")
			return
		case <-ticker.C:
			// Прогресс задания
			progress, err := client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{"stream:routes:progress", lastProgressID},
				Count:   50,
				Block:   time.Millisecond,
			}).Result()
			if err == nil {
				for _, stream := range progress {
					for _, msg := range stream.Messages {
						lastProgressID = msg.ID
						dataStr, ok := msg.Values["data"].(string)
						if !ok {
							continue
						}

						var p map[string]interface{}
						if err := json.Unmarshal([]byte(dataStr), &p); err != nil {
							continue
						}
						if p["job_id"] == event.JobID.String() {
							fmt.Printf("   [%v%%] %v: %v\n", p["percent"], p["phase"], p["detail"])
						}
					}
				}
			}

			// Итог задания
			results, err := client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{"stream:routes:done", lastDoneID},
				Count:   10,
				Block:   time.Millisecond,
			}).Result()
			if err != nil && err != redis.Nil {
				continue
			}

			for _, stream := range results {
				for _, msg := range stream.Messages {
					lastDoneID = msg.ID
					dataStr, ok := msg.Values["data"].(string)
					if !ok {
						continue
					}

					var response map[string]interface{}
					if err := json.Unmarshal([]byte(dataStr), &response); err != nil {
						continue
					}

					if jobID, ok := response["job_id"].(string); ok {
						if jobID == event.JobID.String() {
							fmt.Printf("\n✅ Result received!\n")
							prettyJSON, _ := json.MarshalIndent(response, "", "  ")
							fmt.Printf("%s\n", prettyJSON)
							return
						}
					}
				}
			}
		}
	}
}
