package aws

import (
	"regexp"

	"github.com/eventscout-project/eventscout/internal/core"
	"github.com/eventscout-project/eventscout/internal/detectors"
)

func snsPatterns() []detectors.Pattern {
	return []detectors.Pattern{
		// Full ARN: capture only the topic name at the tail. The key may be
		// a bare kwarg (TopicArn=) or a quoted dict key ('TopicArn':).
		{ID: "sns_topic_arn", Framework: "aws-sdk", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)TopicArn["']?\s*[=:]\s*["']arn:aws:sns:[^"']*:([A-Za-z0-9._-]+)["']`)},
		{ID: "sns_topic_arn_plain", Framework: "aws-sdk", Confidence: core.ConfidenceStrong,
			Regex: regexp.MustCompile(`(?i)TopicArn["']?\s*[=:]\s*["']([A-Za-z0-9._/-]+)["']`)},
		{ID: "sns_publish_call", Framework: "boto3", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)sns(?:_client|Client)?\.publish\s*\(`)},
		{ID: "sns_publish_command", Framework: "aws-sdk-js", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`new\s+PublishCommand\s*\(`)},
	}
}

func sqsPatterns() []detectors.Pattern {
	return []detectors.Pattern{
		// Queue URL: capture only the queue name at the tail
		{ID: "sqs_queue_url", Framework: "aws-sdk", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)QueueUrl["']?\s*[=:]\s*["']https?://[^"']*/([A-Za-z0-9._-]+)["']`)},
		{ID: "sqs_queue_url_plain", Framework: "aws-sdk", Confidence: core.ConfidenceStrong,
			Regex: regexp.MustCompile(`(?i)QueueUrl["']?\s*[=:]\s*["']([A-Za-z0-9._/-]+)["']`)},
		{ID: "sqs_queue_by_name", Framework: "boto3", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)get_queue_by_name\s*\(\s*QueueName\s*=\s*["']([^"']+)["']`)},
		{ID: "sqs_send_message", Framework: "boto3", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)sqs(?:_client|Client)?\.send_message(?:_batch)?\s*\(`)},
		{ID: "sqs_send_command", Framework: "aws-sdk-js", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`new\s+SendMessage(?:Batch)?Command\s*\(`)},
	}
}

func ebPatterns() []detectors.Pattern {
	return []detectors.Pattern{
		// DetailType is the event name itself
		{ID: "eb_detail_type", Framework: "aws-sdk", Confidence: core.ConfidenceExact,
			Regex: regexp.MustCompile(`(?i)DetailType["']?\s*[=:]\s*["']([^"']+)["']`)},
		{ID: "eb_bus_name", Framework: "aws-sdk", Confidence: core.ConfidenceStrong,
			Regex: regexp.MustCompile(`(?i)EventBusName["']?\s*[=:]\s*["']([^"']+)["']`)},
		{ID: "eb_put_events", Framework: "boto3", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`(?i)(?:events|eventbridge)(?:_client|Client)?\.put_events\s*\(`)},
		{ID: "eb_put_command", Framework: "aws-sdk-js", Confidence: core.ConfidenceStrong, NearbyLiteral: true,
			Regex: regexp.MustCompile(`new\s+PutEventsCommand\s*\(`)},
	}
}
