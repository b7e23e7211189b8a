// Package mqtt provides the MQTT client the registry publishes shell
// lifecycle events through.
//
// It manages the broker connection with auto-reconnect, publishes with QoS
// acknowledgement and announces presence on a retained status topic with a
// Last Will for unexpected disconnects.
//
// Topic layout, per repository ID:
//
//	aas-repository/{repoId}/shells/created
//	aas-repository/{repoId}/shells/updated
//	aas-repository/{repoId}/shells/deleted
//	aas-repository/{repoId}/status
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.NewTopics(cfg.Repository.ID))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishDefault(client.Topics().ShellCreated(), payload)
//
// Enable TLS (mqtt.broker.tls) for anything beyond a local broker.
package mqtt
