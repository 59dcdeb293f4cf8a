package evm

// marketABI is the ABI of the EVM deployment of the market program. The
// contract mirrors the operation set of the Move module one-to-one; result
// and state enums use the same encodings (state: 0 active, 1 paused,
// 2 resolved; result: 0 undefined, 1 true, 2 false).
const marketABI = `[
  {"type":"function","name":"getAllPredictions","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[
    {"name":"id","type":"uint64"},
    {"name":"description","type":"string"},
    {"name":"startTime","type":"int64"},
    {"name":"endTime","type":"int64"},
    {"name":"state","type":"uint8"},
    {"name":"yesVotes","type":"uint64"},
    {"name":"noVotes","type":"uint64"},
    {"name":"totalVotes","type":"uint64"},
    {"name":"yesAmount","type":"uint64"},
    {"name":"noAmount","type":"uint64"},
    {"name":"totalAmount","type":"uint64"},
    {"name":"result","type":"uint8"},
    {"name":"predictionType","type":"uint8"},
    {"name":"optionsCount","type":"uint8"},
    {"name":"tags","type":"string[]"}
  ]}]},
  {"type":"function","name":"getPrediction","stateMutability":"view","inputs":[{"name":"id","type":"uint64"}],"outputs":[{"name":"","type":"tuple","components":[
    {"name":"id","type":"uint64"},
    {"name":"description","type":"string"},
    {"name":"startTime","type":"int64"},
    {"name":"endTime","type":"int64"},
    {"name":"state","type":"uint8"},
    {"name":"yesVotes","type":"uint64"},
    {"name":"noVotes","type":"uint64"},
    {"name":"totalVotes","type":"uint64"},
    {"name":"yesAmount","type":"uint64"},
    {"name":"noAmount","type":"uint64"},
    {"name":"totalAmount","type":"uint64"},
    {"name":"result","type":"uint8"},
    {"name":"predictionType","type":"uint8"},
    {"name":"optionsCount","type":"uint8"},
    {"name":"tags","type":"string[]"}
  ]}]},
  {"type":"function","name":"getUserPrediction","stateMutability":"view","inputs":[{"name":"id","type":"uint64"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"tuple","components":[
    {"name":"user","type":"address"},
    {"name":"predictionId","type":"uint64"},
    {"name":"verdict","type":"bool"},
    {"name":"amount","type":"uint64"},
    {"name":"shares","type":"uint64"},
    {"name":"rewardClaimed","type":"bool"}
  ]}]},
  {"type":"function","name":"admin","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"nextPredictionId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint64"}]},
  {"type":"function","name":"getPendingClaims","stateMutability":"view","inputs":[{"name":"id","type":"uint64"}],"outputs":[{"name":"","type":"tuple[]","components":[
    {"name":"user","type":"address"},
    {"name":"amount","type":"uint64"},
    {"name":"shares","type":"uint64"},
    {"name":"state","type":"uint8"}
  ]}]},
  {"type":"function","name":"getDailyClaimInfo","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"lastClaimTime","type":"int64"},{"name":"currentStreak","type":"uint64"}]},
  {"type":"function","name":"getReferrals","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"createPrediction","stateMutability":"nonpayable","inputs":[{"name":"description","type":"string"},{"name":"duration","type":"int64"},{"name":"tags","type":"string[]"},{"name":"predictionType","type":"uint8"},{"name":"optionsCount","type":"uint8"}],"outputs":[]},
  {"type":"function","name":"resolvePrediction","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint64"},{"name":"result","type":"uint8"}],"outputs":[]},
  {"type":"function","name":"pausePrediction","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint64"}],"outputs":[]},
  {"type":"function","name":"initializeClaims","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint64"}],"outputs":[]},
  {"type":"function","name":"distributeRewards","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint64"}],"outputs":[]},
  {"type":"function","name":"approveClaim","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint64"},{"name":"user","type":"address"}],"outputs":[]},
  {"type":"function","name":"predictFor","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint64"},{"name":"user","type":"address"},{"name":"verdict","type":"bool"},{"name":"amount","type":"uint64"}],"outputs":[]},
  {"type":"function","name":"submitClaimFor","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint64"},{"name":"user","type":"address"}],"outputs":[]},
  {"type":"function","name":"claimRewardFor","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint64"},{"name":"user","type":"address"}],"outputs":[]},
  {"type":"function","name":"claimDailyReward","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"}],"outputs":[]},
  {"type":"function","name":"useReferralCode","stateMutability":"nonpayable","inputs":[{"name":"user","type":"address"},{"name":"code","type":"string"}],"outputs":[]}
]`
