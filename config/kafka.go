package config

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers" json:"brokers" yaml:"brokers"`
	Topics          Topics   `mapstructure:"topics" json:"topics" yaml:"topics"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id" json:"consumer_group_id" yaml:"consumer_group_id"`
}

type Topics struct {
	SubmissionPendingReview  string `mapstructure:"submissionPendingReview" yaml:"submissionPendingReview"`   //  新作品待审核
	SubmissionReviewApproved string `mapstructure:"submissionReviewApproved" yaml:"submissionReviewApproved"` //  审核通过
	SubmissionReviewRejected string `mapstructure:"submissionReviewRejected" yaml:"submissionReviewRejected"` //  审核拒绝
	SubmissionDeleted        string `mapstructure:"submissionDeleted" yaml:"submissionDeleted"`               //  作品删除
}
